package model

type View string

const (
	ViewLanding View = "landing"
	ViewIntake  View = "intake"
	ViewDeck    View = "deck"
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient user notification
type Notice struct {
	Level   NoticeLevel
	Message string
}
