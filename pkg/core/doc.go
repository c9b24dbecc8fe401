// Package core defines the shared language of the SQLQuest system.
//
// This package contains:
//   - Execution results (QueryResult, Value kinds)
//   - Schema snapshots (TableInfo, ColumnInfo)
//   - Lesson content (Lesson, Phase, Challenge, QuizQuestion)
//   - Validation outcomes (Verdict, Mismatch)
//   - The engine Adapter contract and the error taxonomy
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
