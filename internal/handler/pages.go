package handler

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// pageTmpl renders the placeholder pages. Layout and styling belong to the
// front end; these only prove which screens a caller can reach.
var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{if .User}}<p>Signed in as {{.User}} ({{.Role}})</p>{{end}}
{{if .Message}}<p>{{.Message}}</p>{{end}}
{{if .Callback}}<p>You will return to {{.Callback}} after signing in.</p>{{end}}
</body></html>
`))

type page struct {
	Title    string
	Message  string
	Callback string
	User     string
	Role     string
}

var authErrors = map[string]string{
	"AccessDenied":          "You do not have permission to view that page.",
	"OAuthSignin":           "Signing in with Google failed.",
	"OAuthCallback":         "Google did not complete the sign-in.",
	"OAuthAccountNotLinked": "This email is registered with a password. Sign in with your password instead.",
}

func render(c echo.Context, p page) error {
	if claims := claimsOf(c); claims != nil {
		p.User, p.Role = claims.Email, string(claims.Role)
	}
	var b strings.Builder
	if err := pageTmpl.Execute(&b, p); err != nil {
		return fail(c, err)
	}
	return c.HTML(http.StatusOK, b.String())
}

// Page returns a handler rendering a static placeholder titled title.
func Page(title string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return render(c, page{Title: title})
	}
}

// LoginPage shows where the visitor will be sent after signing in.
func LoginPage(c echo.Context) error {
	cb := c.QueryParam("callbackUrl")
	if !strings.HasPrefix(cb, "/") || strings.HasPrefix(cb, "//") {
		cb = ""
	}
	return render(c, page{Title: "Sign in", Callback: cb})
}

// AuthErrorPage explains an error code set by the gate or the sign-in flow.
func AuthErrorPage(c echo.Context) error {
	msg, ok := authErrors[c.QueryParam("error")]
	if !ok {
		msg = "Something went wrong while signing in."
	}
	return render(c, page{Title: "Sign-in problem", Message: msg})
}
