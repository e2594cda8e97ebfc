package email

import (
	"bytes"
	"html/template"
	"strings"
)

// CTA is the call-to-action button rendered under a message body.
type CTA struct {
	URL   string
	Label string
}

const layout = `{{define "layout"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #1e3a5f; color: white; padding: 24px; border-radius: 8px 8px 0 0; text-align: center;">
    <h1 style="margin: 0; font-size: 20px;">Universidad Frontera Norte</h1>
  </div>
  <div style="border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 8px 8px; padding: 24px;">
{{template "content" .}}
    <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;" />
    <p style="font-size: 12px; color: #9ca3af; text-align: center;">
      Universidad Frontera Norte — J. B. Chapa 787 y Colón, Centro, Reynosa, Tamaulipas
    </p>
  </div>
</div>{{end}}
{{define "cta"}}{{if .}}<div style="text-align: center; margin: 24px 0;">
      <a href="{{.URL}}" style="display: inline-block; background-color: #1e3a5f; color: white; text-decoration: none; padding: 12px 28px; border-radius: 6px; font-weight: 600; font-size: 14px;">{{.Label}}</a>
    </div>{{end}}{{end}}`

const targetedContent = `{{define "content"}}    <h2 style="margin: 0 0 16px; font-size: 22px; color: #1e3a5f;">{{.Subject}}</h2>
    <p style="margin: 0 0 20px; color: #374151; line-height: 1.6;">{{lines .Body}}</p>
    {{template "cta" .CTA}}{{end}}`

const applicantContent = `{{define "content"}}    <p>Hola <strong>{{.Name}}</strong>,</p>
    <p style="color: #374151; line-height: 1.6;">{{lines .Body}}</p>{{end}}`

const confirmationContent = `{{define "content"}}    <p>Hola <strong>{{.Name}}</strong>,</p>
    <p>Hemos recibido tu solicitud de inscripción correctamente. Nuestro equipo de admisiones revisará tu información y te contactará con los siguientes pasos.</p>
    {{if .Pending}}<div style="background-color: #fef3c7; border: 1px solid #f59e0b; border-radius: 8px; padding: 16px; margin-top: 16px;">
      <p style="margin: 0 0 8px; font-weight: 600; color: #92400e;">Documentos pendientes:</p>
      <ul style="margin: 0; padding-left: 20px; color: #92400e;">{{range .Pending}}<li>{{.}}</li>{{end}}</ul>
      <p style="margin: 8px 0 0; font-size: 14px; color: #92400e;">Nuestro equipo te contactará para indicarte cómo entregarlos.</p>
    </div>{{end}}
    <p style="margin-top: 16px; color: #6b7280; font-size: 14px;">Si tienes alguna duda, no dudes en contactarnos por WhatsApp o llamando a nuestras oficinas.</p>{{end}}`

const newsContent = `{{define "content"}}    <h2 style="margin: 0 0 16px; font-size: 22px; color: #1e3a5f;">{{.Title}}</h2>
    <p style="margin: 0 0 20px; color: #374151; line-height: 1.6;">{{.Excerpt}}</p>
    {{template "cta" .CTA}}{{end}}`

// ConfirmationSubject is the subject line of the enrollment acknowledgement.
const ConfirmationSubject = "Confirmación de solicitud — Universidad Frontera Norte"

var funcs = template.FuncMap{
	// lines escapes s and turns newlines into <br>.
	"lines": func(s string) template.HTML {
		escaped := template.HTMLEscapeString(s)
		escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	},
}

var (
	targetedTmpl     = mustParse(targetedContent)
	applicantTmpl    = mustParse(applicantContent)
	confirmationTmpl = mustParse(confirmationContent)
	newsTmpl         = mustParse(newsContent)
)

func mustParse(content string) *template.Template {
	return template.Must(template.New("email").Funcs(funcs).Parse(layout + content))
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderTargeted renders a bulk message with an optional call to action.
func RenderTargeted(subject, body string, cta *CTA) (string, error) {
	return render(targetedTmpl, struct {
		Subject string
		Body    string
		CTA     *CTA
	}{subject, body, cta})
}

// RenderApplicant renders a one-off message to a single applicant.
func RenderApplicant(name, body string) (string, error) {
	return render(applicantTmpl, struct {
		Name string
		Body string
	}{name, body})
}

// RenderConfirmation renders the enrollment acknowledgement listing any
// documents still pending.
func RenderConfirmation(name string, pending []string) (string, error) {
	return render(confirmationTmpl, struct {
		Name    string
		Pending []string
	}{name, pending})
}

// RenderNews renders a news broadcast.
func RenderNews(title, excerpt string, cta *CTA) (string, error) {
	return render(newsTmpl, struct {
		Title   string
		Excerpt string
		CTA     *CTA
	}{title, excerpt, cta})
}
