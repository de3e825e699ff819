package errs

import "fmt"

// Kind identifies a class of domain failure. Kinds double as sentinel
// targets for errors.Is, so callers can match without holding the
// concrete *Error value.
type Kind int

const (
	KindInvalidPlayerNum Kind = iota + 1
	KindTableNotFound
	KindArchivedTable
	KindInvalidRank
	KindAlreadyFinished
	KindNotParticipant
)

func (k Kind) Error() string {
	switch k {
	case KindInvalidPlayerNum:
		return "invalid player number"
	case KindTableNotFound:
		return "table not found"
	case KindArchivedTable:
		return "archived table"
	case KindInvalidRank:
		return "invalid rank"
	case KindAlreadyFinished:
		return "already finished"
	case KindNotParticipant:
		return "not a participant"
	default:
		return "unknown domain error"
	}
}

// Locales carried by every domain error.
const (
	LocaleEnglishUS = "en-US"
	LocaleJapanese  = "ja"
)

// Error is a domain failure carrying a per-locale message map. It is
// raised at the point of detection and handled only at the interaction
// dispatch boundary, which renders the localized text to the user.
type Error struct {
	kind          Kind
	localizations map[string]string
}

// Error joins every known locale, which is also the fallback when a
// requested locale has no entry.
func (e *Error) Error() string {
	return e.localizations[LocaleEnglishUS] + "\n" + e.localizations[LocaleJapanese]
}

// Localize returns the message for the given locale, falling back to
// the all-locales join when the locale is unknown.
func (e *Error) Localize(locale string) string {
	if msg, ok := e.localizations[locale]; ok {
		return msg
	}
	return e.Error()
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.kind
}

func (e *Error) Kind() Kind { return e.kind }

// InvalidPlayerNum reports a wrong total participant count.
func InvalidPlayerNum(allowed int) *Error {
	return &Error{
		kind: KindInvalidPlayerNum,
		localizations: map[string]string{
			LocaleEnglishUS: fmt.Sprintf("Player number must be %d.", allowed),
			LocaleJapanese:  fmt.Sprintf("プレイヤー数は%d人のみです。", allowed),
		},
	}
}

// TableNotFound reports that no matching table message exists within
// the channel scan window.
func TableNotFound() *Error {
	return &Error{
		kind: KindTableNotFound,
		localizations: map[string]string{
			LocaleEnglishUS: "No active table was found in this channel.",
			LocaleJapanese:  "このチャンネルに有効なテーブルが見つかりません。",
		},
	}
}

// ArchivedTable reports that the table has already concluded and
// archived access was not permitted.
func ArchivedTable() *Error {
	return &Error{
		kind: KindArchivedTable,
		localizations: map[string]string{
			LocaleEnglishUS: "This table has already been archived.",
			LocaleJapanese:  "このテーブルはすでに終了しています。",
		},
	}
}

// InvalidRank reports a race placement outside 1..12, an unparsable
// placement, or an out-of-bounds result index.
func InvalidRank() *Error {
	return &Error{
		kind: KindInvalidRank,
		localizations: map[string]string{
			LocaleEnglishUS: "Rank must be an integer between 1 and 12.",
			LocaleJapanese:  "順位は1から12の整数のみです。",
		},
	}
}

// AlreadyFinished reports an attempt to record a 13th race result.
func AlreadyFinished() *Error {
	return &Error{
		kind: KindAlreadyFinished,
		localizations: map[string]string{
			LocaleEnglishUS: "All 12 races have already been recorded.",
			LocaleJapanese:  "すでに12レースの結果が記録されています。",
		},
	}
}

// NotParticipant reports a name absent from the current game.
func NotParticipant(name string) *Error {
	return &Error{
		kind: KindNotParticipant,
		localizations: map[string]string{
			LocaleEnglishUS: fmt.Sprintf("%s is not a participant of this game.", name),
			LocaleJapanese:  fmt.Sprintf("%sはこのゲームの参加者ではありません。", name),
		},
	}
}
