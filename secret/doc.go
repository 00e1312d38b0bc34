// Package secret resolves credentials referenced from configuration.
//
// A configuration value may be a literal, an environment reference, or a
// provider reference:
//
//	api_key: sk-literal
//	api_key: ${DASHSCOPE_API_KEY}
//	api_key: secretref:env:DASHSCOPE_API_KEY
//	api_key: secretref:file:/run/secrets/dashscope
//
// References may also appear inline, as in "Bearer secretref:env:TOKEN".
package secret
