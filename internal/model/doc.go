// Package model defines the topology of an application array: applications,
// the components they group, the ports components expose and consume, and
// the lifecycle commands attached to each element.
//
// The types here are plain data. They are serialized as JSON on the wire and
// in the local cache, and may be authored as YAML; ParseApplication accepts
// both. A topology is always replaced wholesale, never patched in place.
//
// The package also defines the two notifications a backend sends about a
// component: CommandResponse, the result of a command, and UpdateResponse, an
// unsolicited status push.
package model
