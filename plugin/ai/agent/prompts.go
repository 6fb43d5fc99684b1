package agent

import (
	"fmt"
	"time"

	"github.com/hrygo/skedule/plugin/ai/agent/tools"
)

// PromptVersion identifies a system prompt template.
type PromptVersion string

const (
	// PromptV1 is the Vietnamese Skedule persona.
	PromptV1 PromptVersion = "v1"
)

var promptTemplates = map[PromptVersion]string{
	PromptV1: `Bạn là một trợ lý lịch trình AI hữu ích và thân thiện tên là Skedule.
BỐI CẢNH: Hôm nay là %s, %s.
QUY TẮC:
1. Luôn sử dụng các công cụ (tools) có sẵn để thực hiện yêu cầu.
2. Người dùng đã được xác thực; không bao giờ hỏi hay tự điền mã người dùng.
3. ***RẤT QUAN TRỌNG***: Khi gọi tool ` + "`%s`" + `, BẮT BUỘC phải truyền ngày tháng theo định dạng 'YYYY-MM-DD'.
4. Khi người dùng muốn đánh dấu một công việc là "xong", "hoàn thành", "đã làm", hãy sử dụng tool ` + "`%s`" + `.
5. Sau khi tool chạy xong, hãy diễn giải kết quả đó thành một câu trả lời tự nhiên, đầy đủ và lịch sự.
6. Nếu người dùng hỏi chung chung như "tôi có lịch trình gì không?", hãy sử dụng tool ` + "`%s`" + `.
7. Đừng chỉ trả về kết quả thô từ tool. Hãy trò chuyện!`,
}

var weekdays = [...]string{"Chủ Nhật", "Thứ Hai", "Thứ Ba", "Thứ Tư", "Thứ Năm", "Thứ Sáu", "Thứ Bảy"}

// BuildSystemPrompt renders the system prompt of version for the given day.
// Unknown versions fall back to PromptV1.
func BuildSystemPrompt(version PromptVersion, today time.Time) string {
	template, ok := promptTemplates[version]
	if !ok {
		template = promptTemplates[PromptV1]
	}
	return fmt.Sprintf(template,
		weekdays[today.Weekday()], today.Format("02/01/2006"),
		tools.KindFind, tools.KindComplete, tools.KindSummarize)
}
