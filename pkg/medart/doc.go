// Package medart issues capability-scoped URLs for artist images.
//
// Two paths are exposed through the Service interface. Uploads go straight
// from the client to object storage using a short-lived pre-signed PUT URL
// (CreateUploadGrant), optionally backed by a pending metadata record that is
// later confirmed against storage (ConfirmUpload). Delivery goes through an
// image proxy using HMAC-signed transformation URLs (DeliveryURL), falling
// back to the public storage URL when the proxy is not configured.
//
// Storage providers live under storage/, persistence under repo/, the
// signing primitive under imgsign/ and URL construction under delivery/.
package medart
