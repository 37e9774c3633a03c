package bot

import (
	"strings"
	"unicode"
)

const (
	cmdStart        = "/start"
	cmdEnterRecord  = "/enter_record"
	cmdStop         = "/stop"
	cmdSubmitRecord = "/submit_record"
	cmdApprove      = "/approve_record"
	cmdReject       = "/reject_record"
	cmdShowNotPaid  = "/show_not_paid"
)

const helpText = `Commands:
/enter_record - enter a new expense record step by step
/submit_record <amount>;<item>;<group>;<partner>;<comment>;<mm.yy ...>;<payment method> - submit in one line
/approve_record <id> - approve a record
/reject_record <id> - reject a record
/show_not_paid - list records that are not paid or rejected
/stop - cancel the current entry`

// splitCommand separates "/cmd@bot args" into "/cmd" and "args". ok is false
// for text that is not a command.
func splitCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	name, args = text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		name, args = text[:i], text[i:]
	}
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}
