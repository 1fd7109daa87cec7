package log

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

type formatter struct {
	pattern string
	time    string
}

// Format expands %time, %level, %field, %msg, %caller and %func.
// Fields are rendered key=value, sorted by key.
func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	r := strings.NewReplacer(
		"%time", entry.Time.Format(f.time),
		"%level", strings.ToUpper(entry.Level.String()),
		"%field", buildFields(entry.Data),
		"%msg", entry.Message,
		"%caller", caller(entry),
		"%func", function(entry),
	)
	out := r.Replace(f.pattern)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return []byte(out), nil
}

func caller(entry *logrus.Entry) string {
	if !entry.HasCaller() {
		return "-"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
}

func function(entry *logrus.Entry) string {
	if !entry.HasCaller() {
		return "-"
	}
	name := entry.Caller.Function
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func buildFields(data logrus.Fields) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		fmt.Fprint(&b, data[k])
	}
	return b.String()
}
