// Package models defines the core domain models for tipbot.
//
// # Models
//
//   - Calculation: one saved tip calculation for a chat user
//   - UserSetting: per-user default tip percent
//   - RateSnapshot: cached exchange rates to RUB (never persisted to SQL)
//
// Users are identified by their Telegram user ID (int64). There are no
// accounts; a user exists as soon as they send a command.
//
// # Money
//
// Amounts are decimal.Decimal and are rounded to two places only when
// formatted. Timestamps are Unix seconds, assigned by the store when a
// record is written.
package models
