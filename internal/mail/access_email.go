package mail

import (
	"strings"
	"text/template"
)

const accessSubject = "Seu acesso ao Bella’s Job App"

var accessTmpl = template.Must(template.New("access").Parse(`Olá!

Seu acesso ao Bella's Job App foi ativado com sucesso!
Acesse: {{.LoginURL}}

Login: {{.Email}}
{{- if .Password}}
Senha: {{.Password}}
{{- end}}
{{- if .SetupURL}}

Para definir sua senha, use o link abaixo (válido por {{.SetupValidFor}}, uso único):
{{.SetupURL}}
{{- end}}

Atenciosamente,
Equipe MD App Solutions
`))

// AccessEmail is what the buyer receives once a payment is confirmed.
type AccessEmail struct {
	From          string
	To            string
	LoginURL      string
	Email         string
	Password      string // empty unless plaintext passwords are enabled
	SetupURL      string
	SetupValidFor string
}

func (a AccessEmail) Message() (Message, error) {
	var b strings.Builder
	if err := accessTmpl.Execute(&b, a); err != nil {
		return Message{}, err
	}
	return Message{
		From:    a.From,
		To:      a.To,
		Subject: accessSubject,
		Text:    b.String(),
	}, nil
}
