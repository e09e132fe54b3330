package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadToken возвращается для любых искажённых callback-токенов.
var ErrBadToken = errors.New("некорректный токен")

const tokenPrefix = "serial"

// Page — страница сериала, закодированная в callback-токене
// формата "serial_<contentID>_<episode>".
type Page struct {
	ContentID int64
	Episode   int
}

// Token кодирует страницу в callback-токен.
func (p Page) Token() string {
	return fmt.Sprintf("%s_%d_%d", tokenPrefix, p.ContentID, p.Episode)
}

// ParseToken разбирает callback-токен. Любое отклонение от формата —
// ErrBadToken, без уточнений.
func ParseToken(token string) (Page, error) {
	parts := strings.Split(token, "_")
	if len(parts) != 3 || parts[0] != tokenPrefix {
		return Page{}, ErrBadToken
	}
	contentID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Page{}, ErrBadToken
	}
	episode, err := strconv.Atoi(parts[2])
	if err != nil {
		return Page{}, ErrBadToken
	}
	return Page{ContentID: contentID, Episode: episode}, nil
}

// IsPageToken сообщает, похожа ли callback-data на токен пагинации.
func IsPageToken(data string) bool {
	return strings.HasPrefix(data, tokenPrefix+"_")
}
