package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// DefaultSessionTitle is the title every session is created with.
	// The async title consumer only renames sessions still carrying it.
	DefaultSessionTitle = "New Chat"

	// FallbackAssistantReply is persisted when the inference backend
	// answers with an empty response body.
	FallbackAssistantReply = "I couldn't generate a response."
)
