// Package command holds the per-opcode command tasks and the single state
// cell that owns the task in flight.
//
// Ownership boundary:
//   - a Task is an explicit step machine: parse steps suspend on
//     parser.ErrNeedMore, prompt and crypto steps run to completion
//   - a Cell is allocated once and stores every task variant; Start picks one,
//     Clear wipes it, and no task ever moves while suspended
//   - wire status mapping and opcode routing live in internal/device
package command
