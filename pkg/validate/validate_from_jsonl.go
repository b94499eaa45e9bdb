package validate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Gunvolt24/orderdesk/internal/ports"
)

// maxJSONLLine — предел длины одной записи.
const maxJSONLLine = 10 * 1024 * 1024

// ValidateJSONLStream — построчная проверка: валидные записи в каноническом виде уходят в ow,
// невалидные попадают в Report.Rejected с номером строки. Пустые строки пропускаются.
// Отмена ctx прерывает чтение с ошибкой контекста.
func ValidateJSONLStream(ctx context.Context, validator ports.OrderValidator, ir io.Reader, ow io.Writer) (*Report, error) {
	report := newReport()

	scanner := bufio.NewScanner(ir)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return report, err
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		input, err := ValidateOrderFromJSON(ctx, validator, raw)
		if err != nil {
			report.reject(line, err)
			continue
		}
		if err := writeCanonical(ow, input); err != nil {
			return report, fmt.Errorf("line %d: %w", line, err)
		}
		report.accept(input)
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("scan line %d: %w", line+1, err)
	}
	return report, nil
}
