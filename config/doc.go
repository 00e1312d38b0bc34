// Package config loads matchd configuration.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables. The environment variables are the ones the service has always
// honored (REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, DASHSCOPE_API_KEY) plus
// MATCHCACHE_ADDR and MATCHCACHE_CONFIG.
package config
