package entity

// Role is a conversation participant role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn in a conversation, reduced to what task inference and
// complexity classification actually consume. Dialect translation happens
// wire-to-wire in the infrastructure/llm packages (openai.Content,
// anthropic.ContentBlock, gemini.Part carry the structured-parts forms
// directly); Message is not an intermediate representation those
// translators pass through.
type Message struct {
	Role Role
	Text string
}

// CombinedText returns the message's text. Kept as a method, rather than
// read directly, so callers don't need to change if Message grows a
// structured form again.
func (m Message) CombinedText() string {
	return m.Text
}

// ToolCallInfo is a single tool invocation, used both for assistant
// tool_calls on outbound requests and for accumulated streaming deltas.
type ToolCallInfo struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// ToolDefinition describes a callable tool offered to the model, in the
// dialect-neutral shape both OpenAI "function" defs and Anthropic "tool"
// defs reduce to.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON Schema
}

// ToolChoice constrains which tool (if any) the model must call.
type ToolChoice struct {
	Mode string // "auto" | "none" | "required" | "tool"
	Name string // set when Mode == "tool"
}
