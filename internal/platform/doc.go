// Package platform defines the connector contract shared by every external
// ad and analytics platform, plus the registry, signed OAuth state and the
// HTTP helpers the google and meta sub-packages build on.
package platform
