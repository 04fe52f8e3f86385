// Package tgui provides small helpers for composing Telegram messages in
// ParseMode="HTML": escaping, inline formatting and a line-oriented document
// builder that keeps user-provided text escaped by default.
package tgui
