package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/aiftbot/core/command"
	"github.com/m3rciful/aiftbot/core/config"
)

// Messages is the user-facing copy. Every timeout figure is rendered from the
// session TTL.
type Messages struct {
	ttl         time.Duration
	imageMarker string
	menu        []config.ImageOption
}

// NewMessages renders copy for the given TTL and image menu.
func NewMessages(ttl time.Duration, imageMarker string, menu []config.ImageOption) Messages {
	return Messages{ttl: ttl, imageMarker: imageMarker, menu: menu}
}

// Window renders the TTL as Thai text, e.g. "5 นาที".
func (m Messages) Window() string {
	if m.ttl >= time.Minute && m.ttl%time.Minute == 0 {
		return fmt.Sprintf("%d นาที", int(m.ttl/time.Minute))
	}
	return fmt.Sprintf("%d วินาที", int(m.ttl.Round(time.Second)/time.Second))
}

func (m Messages) Cancelled() string {
	return "✅ ยกเลิกบริการเรียบร้อยแล้ว"
}

func (m Messages) ImageMenu() string {
	var b strings.Builder
	b.WriteString("🖼️ กรุณาเลือกบริการประมวลผลภาพ:")
	for _, o := range m.menu {
		fmt.Fprintf(&b, "\n%s. %s", o.Key, o.Title)
	}
	return b.String()
}

func (m Messages) ImageSelected(title string) string {
	return fmt.Sprintf("✅ เลือกบริการ: %s แล้ว กรุณาส่งภาพเข้ามาภายใน %s", title, m.Window())
}

func (m Messages) ImageHint() string {
	keys := make([]string, 0, len(m.menu))
	for _, o := range m.menu {
		keys = append(keys, o.Key)
	}
	return fmt.Sprintf("⚠️ กรุณาเลือกหมายเลขบริการ (%s) หรือพิมพ์ ยกเลิก", strings.Join(keys, ", "))
}

func (m Messages) ImageReminder(title string) string {
	return fmt.Sprintf("📷 กำลังรอภาพสำหรับบริการ %s กรุณาส่งภาพเข้ามา", title)
}

func (m Messages) Timeout() string {
	return fmt.Sprintf("⏱ หมดเวลา %s แล้ว กรุณาพิมพ์ %s เพื่อเริ่มใหม่อีกครั้ง", m.Window(), m.imageMarker)
}

func (m Messages) CommandReady(cmd string) string {
	name := strings.ToUpper(strings.TrimPrefix(cmd, "#"))
	return fmt.Sprintf("🤖 %s [พร้อมให้บริการ]\nกรุณาใส่ข้อความหรือคำที่ต้องการภายใน %s", name, m.Window())
}

func (m Messages) NotFound(name string) string {
	if name == "" {
		return "❗ไม่พบบริการที่ต้องการ"
	}
	return fmt.Sprintf("❗ไม่พบบริการ: %s", name)
}

func (m Messages) InvalidParam(perr *command.ParamError) string {
	return fmt.Sprintf("❗รูปแบบไม่ถูกต้อง ใช้ %sX|ข้อความ (X = %s)", perr.Literal, strings.Join(perr.Allowed, ","))
}

func (m Messages) Failure() string {
	return "❗เกิดข้อผิดพลาด กรุณาลองใหม่อีกครั้ง"
}

func (m Messages) AskQuestion(modality string) string {
	what := "ไฟล์เสียง"
	if modality == "image" {
		what = "รูปภาพ"
	}
	return fmt.Sprintf("📥 ได้รับ%sแล้ว พิมพ์คำถามเกี่ยวกับ%sนี้ภายใน %s หรือพิมพ์ ยกเลิก", what, what, m.Window())
}

func (m Messages) FileRejected() string {
	return "❗ไม่สามารถประมวลผลไฟล์นี้ได้ (รองรับ .txt .pdf .docx)"
}

func (m Messages) Unsupported() string {
	return "❗️ไม่รองรับประเภทข้อความนี้ครับ"
}

// Welcome lists the command literals and how to open the image menu.
func (m Messages) Welcome(literals []string) string {
	var b strings.Builder
	b.WriteString("👋 สวัสดีครับ ส่งข้อความ เสียง รูปภาพ หรือไฟล์ (.txt .pdf .docx) มาถามได้เลย")
	if len(literals) > 0 {
		b.WriteString("\n\nคำสั่งที่ใช้ได้:")
		for _, l := range literals {
			fmt.Fprintf(&b, "\n%s ข้อความ", l)
		}
	}
	fmt.Fprintf(&b, "\n\nพิมพ์ %s เพื่อเลือกบริการประมวลผลภาพ", m.imageMarker)
	return b.String()
}

func (m Messages) TooLarge() string {
	return "❗ไฟล์มีขนาดใหญ่เกินไป"
}

func (m Messages) RateLimited() string {
	return "⏳ ส่งข้อความถี่เกินไป กรุณารอสักครู่"
}
