package net

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-ascending/paths"
)

// RootsFile is the data file searched for root certificates when no path is
// configured.
const RootsFile = "roots.pem"

// BuildTLSConfig returns the client configuration for the secure session.
//
// Trusted roots are read from the PEM file at certsPath, or from RootsFile
// in the data directories when certsPath is empty. Certificates that cannot
// be parsed are skipped, but at least one must be usable. The session uses
// a fixed cipher suite and protocol version set, and no client certificate
// is presented.
func BuildTLSConfig(certsPath, serverName string) (*tls.Config, error) {
	pemBytes, err := readRoots(certsPath)
	if err != nil {
		return nil, err
	}
	if certsPath == "" {
		certsPath = RootsFile
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(pemBytes) {
		return nil, errors.Errorf("no usable certificates in %q", certsPath)
	}
	glog.V(1).Infof("loaded root certificates from %s", certsPath)

	return &tls.Config{
		RootCAs:      roots,
		ServerName:   serverName,
		MinVersion:   tls.VersionTLS12,
		MaxVersion:   tls.VersionTLS13,
		CipherSuites: CipherSuites(),
	}, nil
}

// CipherSuites returns the TLS 1.2 cipher suites the client offers: every
// suite the runtime considers secure. TLS 1.3 suites are not configurable.
func CipherSuites() []uint16 {
	var ids []uint16
	for _, cs := range tls.CipherSuites() {
		for _, v := range cs.SupportedVersions {
			if v == tls.VersionTLS12 {
				ids = append(ids, cs.ID)
				break
			}
		}
	}
	return ids
}

func readRoots(certsPath string) ([]byte, error) {
	if certsPath != "" {
		b, err := os.ReadFile(certsPath)
		return b, errors.Wrapf(err, "reading root certificates %q", certsPath)
	}
	f, err := paths.Open(RootsFile)
	if err != nil {
		return nil, errors.Wrap(err, "locating root certificates")
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	return b, errors.Wrapf(err, "reading root certificates %q", f.Name())
}
