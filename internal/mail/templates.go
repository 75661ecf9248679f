package mail

import "fmt"

func verificationEmailBody(name, verifyURL string) string {
	return fmt.Sprintf(`
<div style="max-width: 600px; margin: 0 auto; padding: 20px; font-family: Arial, sans-serif;">
  <h2>Email Verification</h2>
  <p>Hello %s,</p>
  <p>Thank you for registering! Please verify your email address by clicking the button below:</p>
  <div style="margin: 30px 0;">
    <a href="%s" style="background-color: #4CAF50; color: white; padding: 12px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Verify Email</a>
  </div>
  <p>If the button doesn't work, you can also copy and paste this link into your browser:</p>
  <p>%s</p>
  <p>This link will expire in 24 hours.</p>
  <p>If you didn't register for an account, please ignore this email.</p>
  <p>Best regards,<br>Your Blog Team</p>
</div>`, name, verifyURL, verifyURL)
}

func resetPasswordEmailBody(name, resetURL string) string {
	return fmt.Sprintf(`
<div style="max-width: 600px; margin: 0 auto; padding: 20px; font-family: Arial, sans-serif;">
  <h2>Password Reset</h2>
  <p>Hello %s,</p>
  <p>You requested a password reset. Click the button below to reset your password:</p>
  <div style="margin: 30px 0;">
    <a href="%s" style="background-color: #2196F3; color: white; padding: 12px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Reset Password</a>
  </div>
  <p>If the button doesn't work, you can also copy and paste this link into your browser:</p>
  <p>%s</p>
  <p>This link will expire in 1 hour.</p>
  <p>If you didn't request a password reset, please ignore this email or contact support if you have concerns.</p>
  <p>Best regards,<br>Your Blog Team</p>
</div>`, name, resetURL, resetURL)
}
