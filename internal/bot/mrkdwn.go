package bot

import (
	"regexp"
	"strings"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	linkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	headerRe = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
	bulletRe = regexp.MustCompile(`^(\s*)[-*]\s+`)
)

// ToMrkdwn rewrites common markdown into Slack mrkdwn: **bold** becomes
// *bold*, headers become bold lines, links use Slack's <url|text> form and
// list dashes become bullets.
func ToMrkdwn(s string) string {
	s = boldRe.ReplaceAllString(s, "*$1*")
	s = linkRe.ReplaceAllString(s, "<$2|$1>")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			lines[i] = "*" + strings.TrimSpace(m[1]) + "*"
			continue
		}
		lines[i] = bulletRe.ReplaceAllString(line, "$1• ")
	}
	return strings.Join(lines, "\n")
}
