package types

// Message is a single chat line as stored in a room's history.
type Message struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Member is a display name and the language it joined with.
type Member struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

// Session binds an HTTP client to a room.
type Session struct {
	Room     string `json:"room"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

type Room struct {
	Code     string    `json:"code"`
	Messages []Message `json:"messages"`
}
