package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
)

// InputFormat — формат пачки заказов.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatJSON  InputFormat = "json"
	FormatJSONL InputFormat = "jsonl"
)

// Rejection — отклонённая запись: номер строки (с 1) и причина.
type Rejection struct {
	Line int
	Err  error
}

// Report — итог проверки пачки тел заказов {items,total_price,status?}.
type Report struct {
	Valid    int
	Invalid  int
	Total    decimal.Decimal            // сумма total_price валидных заказов
	ByStatus map[domain.OrderStatus]int // статус после подстановки PENDING
	Rejected []Rejection
}

func newReport() *Report {
	return &Report{ByStatus: make(map[domain.OrderStatus]int)}
}

func (r *Report) accept(input *domain.OrderInput) {
	r.Valid++
	r.Total = r.Total.Add(input.TotalPrice.Decimal)
	r.ByStatus[input.StatusOrDefault()]++
}

func (r *Report) reject(line int, err error) {
	r.Invalid++
	r.Rejected = append(r.Rejected, Rejection{Line: line, Err: err})
}

// String — "valid=2 invalid=1 total=21.50 PAID=1 PENDING=1" (статусы по алфавиту).
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "valid=%d invalid=%d total=%s", r.Valid, r.Invalid, r.Total.StringFixed(2))

	statuses := make([]string, 0, len(r.ByStatus))
	for s := range r.ByStatus {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(&b, " %s=%d", s, r.ByStatus[domain.OrderStatus(s)])
	}
	return b.String()
}

// ResolveFormat — auto по расширению: .jsonl → JSONL, остальное → JSON.
func ResolveFormat(path string, format InputFormat) InputFormat {
	if format != FormatAuto {
		return format
	}
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return FormatJSONL
	}
	return FormatJSON
}

// ValidateFile — проверяет файл с заказами и пишет канонический вид валидных записей в ow.
func ValidateFile(ctx context.Context, validator ports.OrderValidator, filePath string, format InputFormat, ow io.Writer) (*Report, error) {
	format = ResolveFormat(filePath, format)
	if format != FormatJSON && format != FormatJSONL {
		return newReport(), fmt.Errorf("unsupported format: %s", format)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return newReport(), fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ValidateReader(ctx, validator, file, format, ow)
}

// ValidateReader — то же для произвольного источника (stdin). Формат должен быть задан явно.
// Для JSON невалидный документ — ошибка; для JSONL невалидные строки только попадают в отчёт.
func ValidateReader(ctx context.Context, validator ports.OrderValidator, ir io.Reader, format InputFormat, ow io.Writer) (*Report, error) {
	switch format {
	case FormatJSON:
		report := newReport()
		raw, err := io.ReadAll(ir)
		if err != nil {
			return report, fmt.Errorf("read input: %w", err)
		}
		input, err := ValidateOrderFromJSON(ctx, validator, raw)
		if err != nil {
			report.reject(1, err)
			return report, err
		}
		if err := writeCanonical(ow, input); err != nil {
			return report, err
		}
		report.accept(input)
		return report, nil

	case FormatJSONL:
		return ValidateJSONLStream(ctx, validator, ir, ow)

	default:
		return newReport(), fmt.Errorf("unsupported format: %s", format)
	}
}

// writeCanonical — одна строка компактного JSON; статус всегда явный.
func writeCanonical(ow io.Writer, input *domain.OrderInput) error {
	canonical := *input
	canonical.Status = input.StatusOrDefault()

	line, err := json.Marshal(&canonical)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	if _, err := ow.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write order: %w", err)
	}
	return nil
}
