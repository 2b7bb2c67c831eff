package types

// Phase tracks where the active goal is in its data-collection episode.
type Phase string

const (
	PhaseAwaitingInput Phase = "awaiting_input"
	PhaseCollecting    Phase = "collecting"
	PhaseConfirming    Phase = "confirming"
	PhaseDone          Phase = "done"
)

type ResponseType string

const (
	// ResponseMessage carries conversational text to show the user.
	ResponseMessage ResponseType = "message"
	// ResponseData carries the validated field values of a completed goal.
	ResponseData ResponseType = "data"
	// ResponseEnd carries the closing text of a terminal action.
	ResponseEnd ResponseType = "end"
)

// Response is the single envelope every turn returns. Content is set for
// message and end responses, Data for data responses. Goal is the label of
// the goal that was active when the response was produced.
type Response struct {
	Type    ResponseType   `json:"type"`
	Content string         `json:"content,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Goal    string         `json:"goal"`
}

func NewMessageResponse(goal, content string) *Response {
	return &Response{Type: ResponseMessage, Content: content, Goal: goal}
}

func NewDataResponse(goal string, data map[string]any) *Response {
	return &Response{Type: ResponseData, Data: data, Goal: goal}
}

func NewEndResponse(goal, content string, data map[string]any) *Response {
	return &Response{Type: ResponseEnd, Content: content, Data: data, Goal: goal}
}
