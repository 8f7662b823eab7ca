package notification

import (
	"fmt"

	"github.com/curriculab/payments-service/internal/domain/model"
)

// ReceiptData carries the fields rendered into the customer receipt.
type ReceiptData struct {
	PackageSlug string
	Amount      int64
	Currency    string
	ReceiptURL  string
	OrderID     string
}

// ReceiptHTML builds the customer receipt email body
func ReceiptHTML(data ReceiptData) string {
	receiptLine := ""
	if data.ReceiptURL != "" {
		receiptLine = fmt.Sprintf(`<p style="margin: 0 0 20px 0;">You can view your payment receipt <a href="%s" style="color: #0d6efd;">here</a>.</p>`, data.ReceiptURL)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<title>Payment received</title>
</head>
<body style="margin: 0; padding: 0; font-family: Helvetica, Arial, sans-serif; background-color: #f7f9fc;">
	<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #ffffff; margin-top: 40px;">
		<tr>
			<td align="center" style="padding: 30px 0; background-color: #0d6efd; color: #ffffff;">
				<h1 style="margin: 0; font-size: 24px;">Thank you for your purchase!</h1>
			</td>
		</tr>
		<tr>
			<td style="padding: 30px; color: #333333; font-size: 16px; line-height: 1.6;">
				<p style="margin: 0 0 20px 0;">We received your payment of <strong>%s</strong> for the <strong>%s</strong> package.</p>
				%s
				<p style="margin: 0 0 20px 0;">Order reference: %s</p>
				<p style="margin: 0;">Our team will reach out shortly with the next steps.</p>
			</td>
		</tr>
		<tr>
			<td align="center" style="padding: 20px; background-color: #f0f2fa; color: #666666; font-size: 12px;">
				<p style="margin: 0;">This mailbox is not monitored. Questions? Write to support@curriculab.com.</p>
			</td>
		</tr>
	</table>
</body>
</html>`, model.FormatAmount(data.Amount, data.Currency), data.PackageSlug, receiptLine, data.OrderID)
}

// OperatorOrderHTML builds the new-order notice sent to the operator
func OperatorOrderHTML(data ReceiptData, customerEmail string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<title>New paid order</title>
</head>
<body style="margin: 0; padding: 0; font-family: Helvetica, Arial, sans-serif;">
	<h2 style="color: #0d6efd;">New paid order</h2>
	<table border="0" cellpadding="6" cellspacing="0" style="border-collapse: collapse; font-size: 14px;">
		<tr><td><strong>Order</strong></td><td>%s</td></tr>
		<tr><td><strong>Package</strong></td><td>%s</td></tr>
		<tr><td><strong>Amount</strong></td><td>%s</td></tr>
		<tr><td><strong>Customer</strong></td><td>%s</td></tr>
	</table>
</body>
</html>`, data.OrderID, data.PackageSlug, model.FormatAmount(data.Amount, data.Currency), customerEmail)
}

// OnboardingData carries the fields rendered into the onboarding emails.
type OnboardingData struct {
	Name        string
	OrderID     string
	PackageSlug string
	Phone       string
	Notes       string
}

// OnboardingCustomerHTML builds the onboarding confirmation sent to the customer
func OnboardingCustomerHTML(data OnboardingData) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<title>We got your details</title>
</head>
<body style="margin: 0; padding: 0; font-family: Helvetica, Arial, sans-serif; background-color: #f7f9fc;">
	<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #ffffff; margin-top: 40px;">
		<tr>
			<td align="center" style="padding: 30px 0; background-color: #0d6efd; color: #ffffff;">
				<h1 style="margin: 0; font-size: 24px;">We got your details</h1>
			</td>
		</tr>
		<tr>
			<td style="padding: 30px; color: #333333; font-size: 16px; line-height: 1.6;">
				<p style="margin: 0 0 20px 0;">Hi <strong>%s</strong>,</p>
				<p style="margin: 0 0 20px 0;">Thanks for completing your onboarding for the <strong>%s</strong> package. A specialist will contact you within one business day.</p>
				<p style="margin: 0;">Order reference: %s</p>
			</td>
		</tr>
		<tr>
			<td align="center" style="padding: 20px; background-color: #f0f2fa; color: #666666; font-size: 12px;">
				<p style="margin: 0;">This mailbox is not monitored. Questions? Write to support@curriculab.com.</p>
			</td>
		</tr>
	</table>
</body>
</html>`, data.Name, data.PackageSlug, data.OrderID)
}

// OnboardingOperatorHTML builds the onboarding notice sent to the operator
func OnboardingOperatorHTML(data OnboardingData, customerEmail string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<title>Onboarding submitted</title>
</head>
<body style="margin: 0; padding: 0; font-family: Helvetica, Arial, sans-serif;">
	<h2 style="color: #0d6efd;">Onboarding submitted</h2>
	<table border="0" cellpadding="6" cellspacing="0" style="border-collapse: collapse; font-size: 14px;">
		<tr><td><strong>Order</strong></td><td>%s</td></tr>
		<tr><td><strong>Package</strong></td><td>%s</td></tr>
		<tr><td><strong>Name</strong></td><td>%s</td></tr>
		<tr><td><strong>Email</strong></td><td>%s</td></tr>
		<tr><td><strong>Phone</strong></td><td>%s</td></tr>
		<tr><td><strong>Notes</strong></td><td>%s</td></tr>
	</table>
</body>
</html>`, data.OrderID, data.PackageSlug, data.Name, customerEmail, data.Phone, data.Notes)
}
