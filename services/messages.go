package services

import (
	"fmt"

	"dopplapi/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// User facing connection test messages. The English text is the message key.
const (
	msgFillAllFields      = "Please fill in all fields (URL, Key, Model)"
	msgAuthFailed         = "Authentication failed (401)"
	msgAuthFailedDetail   = "API key is invalid or expired"
	msgNotFound           = "Resource not found (404)"
	msgNotFoundDetail     = "Wrong model name or base URL"
	msgConnectionFailed   = "Connection failed (%d)"
	msgHTTPError          = "HTTP Error %d"
	msgServerError        = "Server Error: %s..."
	msgNetworkError       = "Network Error"
	msgConnectionVerified = "Connection Verified"
)

func init() {
	zh := language.MustParse(string(models.ZhTW))
	for key, translation := range map[string]string{
		msgFillAllFields:      "請填寫完整欄位 (URL, Key, Model)",
		msgAuthFailed:         "認證失敗 (401)",
		msgAuthFailedDetail:   "API Key 無效或過期",
		msgNotFound:           "找不到資源 (404)",
		msgNotFoundDetail:     "模型名稱錯誤 或 Base URL 不正確",
		msgConnectionFailed:   "連線失敗 (%d)",
		msgHTTPError:          "HTTP 錯誤 %d",
		msgServerError:        "伺服器錯誤: %s...",
		msgNetworkError:       "網路錯誤 (Network Error)",
		msgConnectionVerified: "連線成功 (Connection Verified)",
	} {
		if err := message.SetString(zh, key, translation); err != nil {
			panic(err)
		}
	}
}

// localize formats a message key for the given language. English keys are
// their own translation.
func localize(lang models.Language, key string, args ...any) string {
	if lang != models.ZhTW {
		return fmt.Sprintf(key, args...)
	}
	return message.NewPrinter(lang.Tag()).Sprintf(key, args...)
}
