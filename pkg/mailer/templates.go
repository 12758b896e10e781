package mailer

import (
	"bytes"
	"text/template"

	"github.com/pkg/errors"
)

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) emailTemplate {
	return emailTemplate{
		subject: template.Must(template.New(name + "_subject").Parse(subject)),
		body:    template.Must(template.New(name + "_body").Parse(body)),
	}
}

var templates = map[string]emailTemplate{
	"payment_receipt": mustTemplate("payment_receipt",
		`Your receipt for {{.course_title}}`,
		`Thanks for your purchase!

Course: {{.course_title}}
Amount: {{.amount_cents}} {{.currency}}
Payment reference: {{.payment_id}}

You are now enrolled. Happy learning!
`),
	"welcome": mustTemplate("welcome",
		`Welcome to Tutora`,
		`Hi {{.username}},

Your account is ready. Browse the catalog and enroll in your first course.
`),
}

// Render builds a message from a named template and its parameters.
func Render(name, to string, params map[string]string) (Message, error) {
	tmpl, ok := templates[name]
	if !ok {
		return Message{}, errors.Errorf("unknown email template: %s", name)
	}

	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, params); err != nil {
		return Message{}, errors.WithStack(err)
	}
	if err := tmpl.body.Execute(&body, params); err != nil {
		return Message{}, errors.WithStack(err)
	}

	return Message{
		To:       to,
		Subject:  subject.String(),
		TextBody: body.String(),
	}, nil
}
