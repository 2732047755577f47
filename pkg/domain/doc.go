// Package domain contains the core domain entities shared across the portal:
// quiz and video content, generated QR codes, scan sessions and the navigation
// targets derived from decoded payloads. These types are free of
// infrastructure concerns so they can be used by storage, services and the API.
package domain
