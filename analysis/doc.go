// Package analysis scores a resume against a job description with an
// OpenAI-compatible chat model and defines the Result tagged union that the
// match cache stores.
//
// Analyzer implementations never fail with a Go error: provider rejections,
// transport failures and unparseable replies all become error-kind Results,
// which callers may cache like any other result.
package analysis
