package email

import "fmt"

const inviteHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'HelveticaNeue', Helvetica, Arial, sans-serif; line-height: 1.6; color: #333333; background: #ffffff; margin: 0; padding: 0; }
        .wrapper { max-width: 600px; margin: 0 auto; padding: 60px 20px; }
        .container { background: #ffffff; border: 1px solid #e5e5e5; padding: 60px 50px; }
        .logo { font-size: 24px; font-weight: 300; color: #000000; margin: 0 0 40px 0; text-align: center; letter-spacing: -0.5px; }
        .title { font-size: 20px; font-weight: 300; color: #000000; margin: 0 0 24px 0; }
        .text { font-size: 15px; font-weight: 400; color: #333333; margin: 0 0 24px 0; }
        .button-wrapper { text-align: center; margin: 32px 0; }
        .button { display: inline-block; width: 100%%; max-width: 280px; padding: 18px 24px; background: #4f5bf8; color: #ffffff; text-decoration: none; font-size: 15px; text-align: center; box-sizing: border-box; }
        .code-label { font-size: 13px; font-weight: 500; color: #666666; margin: 32px 0 8px 0; }
        .code { background: #f5f5f5; padding: 14px 16px; font-family: 'Courier New', monospace; font-size: 13px; color: #000000; border: 1px solid #e5e5e5; word-break: break-all; }
        .footer { margin-top: 48px; padding-top: 24px; border-top: 1px solid #e5e5e5; font-size: 13px; color: #666666; text-align: center; }
    </style>
</head>
<body>
    <div class="wrapper">
        <div class="container">
            <h1 class="logo">Easel</h1>
            <h2 class="title">You've been invited</h2>
            <p class="text">
                You've been invited to join Easel. Click the button below to create your account and get started.
            </p>
            <div class="button-wrapper">
                <a href="%s" class="button">Create Account</a>
            </div>
            <div class="code-label">Or use this invite code:</div>
            <div class="code">%s</div>
            <p class="text" style="margin-top: 32px; font-size: 13px; color: #666666;">
                This invitation expires in %d days. If you didn't expect this, you can safely ignore this email.
            </p>
            <div class="footer">© Easel</div>
        </div>
    </div>
</body>
</html>`

const inviteText = `Easel

You've been invited

You've been invited to join Easel. Click the link below to create your account:

%s

Or use this invite code: %s

This invitation expires in %d days. If you didn't expect this, you can safely ignore this email.

© Easel`

// SendInvite envía el mail de invitación con el link de alta y el código.
func SendInvite(s Sender, to, inviteCode, frontendURL string, expiresDays int) error {
	link := fmt.Sprintf("%s/signup?code=%s", frontendURL, inviteCode)
	html := fmt.Sprintf(inviteHTML, link, inviteCode, expiresDays)
	text := fmt.Sprintf(inviteText, link, inviteCode, expiresDays)
	return s.Send(to, "You've been invited to Easel", html, text)
}
