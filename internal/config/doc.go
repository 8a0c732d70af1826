// Package config handles the component's configuration document: env-token
// templating, secrets loading, and the pure deep merge that builds the
// in-memory recording variant of a config without aliasing the committed one.
package config
