package storefront

import "context"

// Question is one value the storefront needs from the user
type Question struct {
	Key  string
	Text string
}

var (
	askLoginUsername    = Question{Key: "username", Text: "Ingresa tu nombre de usuario:"}
	askLoginPassword    = Question{Key: "password", Text: "Ingresa tu contraseña:"}
	askRegisterUsername = Question{Key: "username", Text: "Elige un nombre de usuario:"}
	askRegisterPassword = Question{Key: "password", Text: "Elige una contraseña:"}
)

// CredentialPrompt supplies answers; ok=false means the user cancelled
type CredentialPrompt interface {
	Ask(ctx context.Context, q Question) (answer string, ok bool)
}

// Credentials answers from values captured up front, e.g. a request body.
// A nil field behaves like a cancelled prompt.
type Credentials struct {
	Username *string
	Password *string
}

func (c Credentials) Ask(ctx context.Context, q Question) (string, bool) {
	var val *string
	switch q.Key {
	case "username":
		val = c.Username
	case "password":
		val = c.Password
	}
	if val == nil {
		return "", false
	}
	return *val, true
}

// PromptFunc adapts a function to CredentialPrompt
type PromptFunc func(ctx context.Context, q Question) (string, bool)

func (f PromptFunc) Ask(ctx context.Context, q Question) (string, bool) {
	return f(ctx, q)
}
