package conversation

import (
	"fmt"

	"github.com/wolfman30/pharmacare-bot/internal/session"
)

func (t *turn) supportMenu() {
	t.say(ListDirective(ListMessage{
		Body:        "Please select an option to proceed:",
		ButtonLabel: "View Options",
		Header:      "More Options",
		Footer:      "We're here to help you better!",
		Sections: []Section{
			{Title: "Support", Rows: []Row{
				{ID: tokenRegister, Title: "📝 Register", Description: "Complete your registration"},
				{ID: tokenAppDownload, Title: "📲 Download App", Description: "Get our app for exclusive benefits"},
				{ID: tokenAboutUs, Title: "📄 About Our Program", Description: "Read the program details"},
				{ID: tokenContactCare, Title: "📞 Customer Care", Description: "Talk to our care team"},
			}},
			{Title: "Navigation", Rows: []Row{
				{ID: tokenBackToMain, Title: "⬅️ Back to Main Menu", Description: "Return to main options"},
			}},
		},
	}))
	t.setState(session.StateSupportMenu)
}

func (e *Engine) registerText() string {
	return fmt.Sprintf("📝 *Registration Portal*\n\n"+
		"Thank you for your interest in registering with %s!\n\n"+
		"Complete your registration process by clicking the link below:\n%s\n\n"+
		"By registering, you'll get access to exclusive health services and personalized care plans.",
		e.opts.PharmacyName, orPending(e.opts.RegisterFormURL))
}

func (e *Engine) appDownloadText() string {
	return fmt.Sprintf("📲 *Download Our App*\n\n"+
		"Get the %s app now and enjoy exclusive benefits:\n\n"+
		"• Special discounts on medicines\n"+
		"• Easy appointment scheduling\n"+
		"• 24/7 health monitoring\n"+
		"• Personalized health insights\n\n"+
		"Download link: %s",
		e.opts.PharmacyName, orPending(e.opts.AppDownloadURL))
}

func (e *Engine) customerCareText() string {
	phone := e.opts.CustomerCare
	if phone == "" {
		phone = e.opts.SupportPhone
	}
	return fmt.Sprintf("📞 *Customer Care*\n\n"+
		"For any assistance, please contact our customer care team:\n\n"+
		"Phone: %s\n\n"+
		"We're available 24/7 to help you with any queries.\n\n"+
		"Your health is our priority!", phone)
}

func (e *Engine) aboutText() string {
	return fmt.Sprintf("📄 *About Our Program*\n\n"+
		"You can view our program details by clicking the link below:\n%s",
		orPending(e.opts.AboutProgramURL))
}

func orPending(link string) string {
	if link == "" {
		return "(link coming soon)"
	}
	return link
}
