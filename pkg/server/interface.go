/*
Package server implements msgpack IPC for tag completion services.

The server reads a stream of msgpack maps from stdin and writes one msgpack
map per request to stdout. There is no framing beyond msgpack itself.

# IPC

Every request carries an ID and an action. A request without an action is a
completion request. The document text travels with the request, so the
server keeps no document state between calls:

	{"id": "req_001", "action": "complete", "text": "tags: wo", "ln": 0, "ch": 8, "l": 24}

The response lists ranked tags with their highlighted display form and the
span the client should replace:

	{"id": "req_001", "s": [{"w": "work", "d": "<span ...><b>wo</b></span>rk", "r": 1}],
	 "m": "inline", "q": "wo", "sl": 0, "sc": 6, "ec": 8, "c": 1, "t": 145}

A cursor outside a tags field is not an error: the response has no
suggestions and an empty mode.

Selecting a tag returns the edit to apply and the resulting text:

	{"id": "req_002", "action": "select", "text": "tags: wo", "ln": 0, "ch": 8, "w": "work"}
	{"id": "req_002", "ed": {"sl": 0, "sc": 6, "el": 0, "ec": 8, "n": "\"work\", "}, "text": "tags: \"work\", "}

Settings and introspection:

	{"id": "c1", "action": "set_color", "color": "#00ff00"}
	{"id": "c2", "action": "get_config"}
	{"id": "t1", "action": "tags", "p": "dev/"}
	{"id": "h1", "action": "health"}

Failures come back as {"id": ..., "e": message, "c": code} with 400 for a
bad request and 500 for an internal error.

Clients may send "tags" on complete and select requests to rank against
their own vocabulary instead of the indexed vault.
*/
package server

// Request actions.
const (
	ActionComplete  = "complete"
	ActionSelect    = "select"
	ActionSetColor  = "set_color"
	ActionGetConfig = "get_config"
	ActionTags      = "tags"
	ActionHealth    = "health"
)

// Envelope holds the fields shared by every request
type Envelope struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
}

// CompletionRequest asks for suggestions at a cursor
type CompletionRequest struct {
	ID     string   `msgpack:"id"`
	Action string   `msgpack:"action"`
	Text   string   `msgpack:"text"`
	Line   int      `msgpack:"ln"`
	Ch     int      `msgpack:"ch"`
	Limit  int      `msgpack:"l,omitempty"`
	Tags   []string `msgpack:"tags,omitempty"`
}

// CompletionSuggestion - minimal suggestion response
type CompletionSuggestion struct {
	Word    string `msgpack:"w"`
	Display string `msgpack:"d"`
	Rank    uint16 `msgpack:"r"`
}

// CompletionResponse - completion response
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Mode        string                 `msgpack:"m"`
	Query       string                 `msgpack:"q"`
	StartLine   int                    `msgpack:"sl"`
	StartCh     int                    `msgpack:"sc"`
	EndCh       int                    `msgpack:"ec"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
}

// SelectRequest applies a chosen tag at a cursor
type SelectRequest struct {
	ID     string   `msgpack:"id"`
	Action string   `msgpack:"action"`
	Text   string   `msgpack:"text"`
	Line   int      `msgpack:"ln"`
	Ch     int      `msgpack:"ch"`
	Word   string   `msgpack:"w"`
	Tags   []string `msgpack:"tags,omitempty"`
}

// TextEdit replaces [start, end) with NewText
type TextEdit struct {
	StartLine int    `msgpack:"sl"`
	StartCh   int    `msgpack:"sc"`
	EndLine   int    `msgpack:"el"`
	EndCh     int    `msgpack:"ec"`
	NewText   string `msgpack:"n"`
}

// SelectResponse - select response
type SelectResponse struct {
	ID   string   `msgpack:"id"`
	Edit TextEdit `msgpack:"ed"`
	Text string   `msgpack:"text"`
}

// ConfigRequest reads or changes settings
type ConfigRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	Color  string `msgpack:"color,omitempty"`
}

// ConfigResponse - config operation response
type ConfigResponse struct {
	ID           string `msgpack:"id"`
	Status       string `msgpack:"status"`
	MatchColor   string `msgpack:"match_color"`
	MaxLimit     int    `msgpack:"max_limit"`
	DefaultLimit int    `msgpack:"default_limit"`
	ConfigPath   string `msgpack:"config_path,omitempty"`
}

// TagsRequest lists the indexed vocabulary
type TagsRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	Prefix string `msgpack:"p,omitempty"`
}

// TagsResponse - vocabulary listing
type TagsResponse struct {
	ID    string   `msgpack:"id"`
	Tags  []string `msgpack:"tags"`
	Count int      `msgpack:"c"`
}

// StatusResponse answers health checks and announces readiness
type StatusResponse struct {
	ID     string         `msgpack:"id,omitempty"`
	Status string         `msgpack:"status"`
	Stats  map[string]int `msgpack:"stats,omitempty"`
}

// CompletionError holds basic error information for failed requests
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
