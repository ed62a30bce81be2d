// Package report renders validation results in the formats the scan
// command can emit:
//   - ConsoleWriter: human-readable run summary for the terminal
//   - PlainWriter: one candidate per line, ready for re-scanning
//   - TelegramWriter: t.me share links for Telegram clients
//   - JSONWriter: structured output for tool integration
//   - MarkdownWriter: a shareable report with tables and charts
//
// All writers implement the Writer interface over *model.ResultSet, so
// one result set fans out to any combination of formats through
// MultiWriter. Every writer takes an io.Writer; opening and closing
// files is the caller's job. Keeping rendering out of the model package
// means a new format is a new file here, not a change to the data
// structures.
package report
