package mail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Kind selects a template.
type Kind string

const (
	KindSignInCode        Kind = "sign-in-code"
	KindEmailVerification Kind = "email-verification"
	KindPasswordReset     Kind = "password-reset"
)

// Data is what templates can reference.
type Data struct {
	AppName   string
	To        string
	Code      string
	ExpiresIn time.Duration
}

type source struct {
	subject string
	body    string
}

var defaultSources = map[Kind]source{
	KindSignInCode: {
		subject: "Your {{.AppName}} sign-in code",
		body: `Your sign-in code is {{.Code}}.

It expires in {{minutes .ExpiresIn}}. If you did not try to sign in, ignore this email.
`,
	},
	KindEmailVerification: {
		subject: "Verify your email for {{.AppName}}",
		body: `Your verification code is {{.Code}}.

It expires in {{minutes .ExpiresIn}}.
`,
	},
	KindPasswordReset: {
		subject: "Reset your {{.AppName}} password",
		body: `Use this token to reset your password:

{{.Code}}

It expires in {{minutes .ExpiresIn}}. If you did not ask for a reset, ignore this email; your password is unchanged.
`,
	},
}

var funcs = template.FuncMap{
	"minutes": func(d time.Duration) string {
		m := int(d.Round(time.Minute) / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		if m%60 == 0 && m >= 60 {
			h := m / 60
			if h == 1 {
				return "1 hour"
			}
			return fmt.Sprintf("%d hours", h)
		}
		return fmt.Sprintf("%d minutes", m)
	},
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Templates renders credential emails.
type Templates struct {
	appName string
	byKind  map[Kind]compiled
}

// NewTemplates compiles the built-in templates. overrides maps a kind to a
// replacement body template; the subject line stays built in.
func NewTemplates(appName string, overrides map[Kind]string) (*Templates, error) {
	t := &Templates{appName: appName, byKind: make(map[Kind]compiled, len(defaultSources))}
	for kind, src := range defaultSources {
		body := src.body
		if o, ok := overrides[kind]; ok && strings.TrimSpace(o) != "" {
			body = o
		}
		subj, err := template.New(string(kind) + ".subject").Funcs(funcs).Parse(src.subject)
		if err != nil {
			return nil, fmt.Errorf("mail: parse %s subject: %w", kind, err)
		}
		b, err := template.New(string(kind) + ".body").Funcs(funcs).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("mail: parse %s body: %w", kind, err)
		}
		t.byKind[kind] = compiled{subject: subj, body: b}
	}
	return t, nil
}

// Render produces the message for kind.
func (t *Templates) Render(kind Kind, data Data) (Message, error) {
	c, ok := t.byKind[kind]
	if !ok {
		return Message{}, fmt.Errorf("mail: unknown template %q", kind)
	}
	if data.AppName == "" {
		data.AppName = t.appName
	}

	var subj, body bytes.Buffer
	if err := c.subject.Execute(&subj, data); err != nil {
		return Message{}, err
	}
	if err := c.body.Execute(&body, data); err != nil {
		return Message{}, err
	}
	return Message{To: data.To, Subject: subj.String(), Body: body.String()}, nil
}
