package config

type ServiceConfig struct {
	Name                string            `yaml:"name"`
	Environment         string            `yaml:"environment"`
	Version             string            `yaml:"version"`
	ClientURL           string            `yaml:"client_url"`
	StripeSecretKey     string            `yaml:"stripe_secret_key"`
	StripeWebhookSecret string            `yaml:"stripe_webhook_secret"`
	JWTSecret           string            `yaml:"jwt_secret"`
	SchedulerToken      string            `yaml:"scheduler_token"`
	OperatorEmail       string            `yaml:"operator_email"`
	// Packages maps a package slug to its Stripe price id.
	Packages map[string]string `yaml:"packages"`
}
