package workflow

import "strings"

// NormalizeChannelIdent приводит ввод администратора к каноничной
// форме: @username, числовой chat id или исходная invite-ссылка.
// Принимаются @username, -100..., https://t.me/username и t.me/username.
func NormalizeChannelIdent(text string) string {
	t := strings.TrimSpace(text)
	idx := strings.Index(t, "t.me/")
	if idx < 0 {
		return t
	}
	part := t[idx+len("t.me/"):]
	if q := strings.IndexByte(part, '?'); q >= 0 {
		part = part[:q]
	}
	part = strings.Trim(strings.TrimSpace(part), "/")
	// invite-ссылка (+xxxx) не резолвится как идентификатор
	if strings.HasPrefix(part, "+") {
		return t
	}
	if !strings.HasPrefix(part, "@") {
		part = "@" + part
	}
	return part
}

// IsPrivateInvite распознаёт приватные invite-ссылки вида t.me/+xxxx.
func IsPrivateInvite(ident string) bool {
	return strings.Contains(ident, "t.me/") && strings.Contains(ident, "/+")
}

// SplitCaption делит подпись видео по первому " - " на название
// и описание. Без разделителя вся подпись — название.
func SplitCaption(caption string) (title, description string) {
	if before, after, ok := strings.Cut(caption, " - "); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return strings.TrimSpace(caption), ""
}
