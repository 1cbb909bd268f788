package rewrite

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines shown around each change
const diffContext = 3

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// Diff renders a unified diff from before to after, labelled with name.
// It returns "" when the texts are equal.
func Diff(name, before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []diffLine
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				ops = append(ops, diffLine{op: d.Type, text: line})
			}
		}
	}

	// 1-based line numbers in each text at the start of every op
	oldAt := make([]int, len(ops)+1)
	newAt := make([]int, len(ops)+1)
	oldAt[0], newAt[0] = 1, 1
	for i, op := range ops {
		oldAt[i+1], newAt[i+1] = oldAt[i], newAt[i]
		if op.op != diffmatchpatch.DiffInsert {
			oldAt[i+1]++
		}
		if op.op != diffmatchpatch.DiffDelete {
			newAt[i+1]++
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "--- a/%s\n+++ b/%s\n", name, name)

	i := 0
	for i < len(ops) {
		for i < len(ops) && ops[i].op == diffmatchpatch.DiffEqual {
			i++
		}
		if i == len(ops) {
			break
		}

		start := max(i-diffContext, 0)
		end := i
		for end < len(ops) {
			if ops[end].op != diffmatchpatch.DiffEqual {
				end++
				continue
			}
			run := end
			for run < len(ops) && ops[run].op == diffmatchpatch.DiffEqual {
				run++
			}
			if run == len(ops) || run-end > 2*diffContext {
				end = min(end+diffContext, len(ops))
				break
			}
			end = run
		}

		writeHunk(&out, ops[start:end], oldAt[start], newAt[start])
		i = end
	}
	return out.String()
}

func writeHunk(out *strings.Builder, ops []diffLine, oldStart, newStart int) {
	oldCount, newCount := 0, 0
	for _, op := range ops {
		if op.op != diffmatchpatch.DiffInsert {
			oldCount++
		}
		if op.op != diffmatchpatch.DiffDelete {
			newCount++
		}
	}
	if oldCount == 0 {
		oldStart--
	}
	if newCount == 0 {
		newStart--
	}

	fmt.Fprintf(out, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
	for _, op := range ops {
		prefix := " "
		switch op.op {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		out.WriteString(prefix + op.text)
		if !strings.HasSuffix(op.text, "\n") {
			out.WriteString("\n\\ No newline at end of file\n")
		}
	}
}
