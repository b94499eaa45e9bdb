package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gunvolt24/orderdesk/pkg/validate"
)

// Проверка пачки тел заказов (JSON или JSONL) до отправки в POST /orders.
// Канонический вид валидных записей — в stdout, отклонённые строки и итог — в stderr.
func main() {
	inputPath := flag.String("in", "", "path to input (.json or .jsonl); empty or \"-\" reads stdin")
	formatStr := flag.String("format", "auto", "input format: auto|json|jsonl")
	strict := flag.Bool("strict", false, "exit with code 2 if any record is rejected")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, *inputPath, validate.InputFormat(*formatStr), *strict, os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, path string, format validate.InputFormat, strict bool, stdin io.Reader, stdout, stderr io.Writer) int {
	orderValidator := validate.NewOrderValidator()

	var (
		report *validate.Report
		err    error
	)
	if path == "" || path == "-" {
		// stdin без явного формата читаем как JSONL
		if format == validate.FormatAuto {
			format = validate.FormatJSONL
		}
		report, err = validate.ValidateReader(ctx, orderValidator, stdin, format, stdout)
	} else {
		report, err = validate.ValidateFile(ctx, orderValidator, path, format, stdout)
	}

	for _, r := range report.Rejected {
		fmt.Fprintf(stderr, "line %d: %v\n", r.Line, r.Err)
	}
	if err != nil {
		fmt.Fprintf(stderr, "orders rejected: %v (%s)\n", err, report)
		return 1
	}
	fmt.Fprintf(stderr, "orders checked: %s\n", report)

	if strict && report.Invalid > 0 {
		return 2
	}
	return 0
}
