// Package secret provides a small, dependency-light secret resolution layer.
//
// Upstream API keys never live in configuration files; config values carry
// references that are resolved at client construction. The package supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider, EnvProvider)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:MESHY_API_KEY
//   - Inline use:  Bearer secretref:env:ELEVENLABS_API_KEY
package secret
