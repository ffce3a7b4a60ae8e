/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension keeps a single configuration object stored under a key derived
from its package name. The configuration is loaded from the genesis file
(`app_state.conf.<package>`) when the chain is initialized and read by the
handlers from the same store as the rest of the state, so every replica
applies operations with exactly the same settings.
*/
package gconf
