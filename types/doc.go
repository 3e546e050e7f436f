// Package types provides core types used across the voicedesk concierge.
// This package has ZERO dependencies on other voicedesk packages to avoid
// circular imports. All other packages should import types from here.
package types
