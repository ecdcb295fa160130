// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tlsconfig turns PEM certificate and key material into the server
// TLS configuration shared by every inbound connection.
package tlsconfig

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

// PEM block types.
const (
	blockCertificate = "CERTIFICATE"
	blockPKCS8       = "PRIVATE KEY"
	blockPKCS1       = "RSA PRIVATE KEY"
)

// Load builds a server *tls.Config from a PEM certificate chain (leaf first)
// and a PEM private key. PKCS#8 keys are preferred; PKCS#1 RSA keys are used
// only when no PKCS#8 block parses. Clients are not asked for certificates.
//
// Any failure returns a nil config and a *errors.TLSError.
func Load(certPEM, keyPEM []byte) (*tls.Config, error) {
	cert, err := KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return ServerConfig(cert), nil
}

// LoadFiles reads the certificate and key files and calls Load. Errors carry
// the offending path.
func LoadFiles(certPath, keyPath string) (*tls.Config, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, &agenterrors.TLSError{Kind: agenterrors.TLSReadFailed, Path: certPath, Reason: "failed to read certificate", Cause: err}
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, &agenterrors.TLSError{Kind: agenterrors.TLSReadFailed, Path: keyPath, Reason: "failed to read private key", Cause: err}
	}

	cfg, err := Load(certPEM, keyPEM)
	if err != nil {
		if tlsErr, ok := err.(*agenterrors.TLSError); ok && tlsErr.Path == "" {
			switch tlsErr.Kind {
			case agenterrors.MissingCertificate, agenterrors.InvalidCertificate:
				tlsErr.Path = certPath
			default:
				tlsErr.Path = keyPath
			}
		}
		return nil, err
	}
	return cfg, nil
}

// ServerConfig returns the server-side settings around a key pair.
func ServerConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.NoClientCert,
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"h2", "http/1.1"},
	}
}

// KeyPair parses the chain and key and checks that they belong together.
func KeyPair(certPEM, keyPEM []byte) (tls.Certificate, error) {
	chain, leaf, err := parseChain(certPEM)
	if err != nil {
		return tls.Certificate{}, err
	}

	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		return tls.Certificate{}, err
	}

	if err := matchKey(leaf, key); err != nil {
		return tls.Certificate{}, err
	}

	return tls.Certificate{
		Certificate: chain,
		PrivateKey:  key,
		Leaf:        leaf,
	}, nil
}

// parseChain returns the DER bytes of every CERTIFICATE block in order and
// the parsed leaf. Other block types are skipped.
func parseChain(data []byte) ([][]byte, *x509.Certificate, error) {
	var (
		chain [][]byte
		leaf  *x509.Certificate
	)
	for rest := data; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != blockCertificate {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, nil, &agenterrors.TLSError{
				Kind:   agenterrors.InvalidCertificate,
				Reason: fmt.Sprintf("certificate %d in chain does not parse", len(chain)+1),
				Cause:  err,
			}
		}
		if leaf == nil {
			leaf = cert
		}
		chain = append(chain, block.Bytes)
	}

	if len(chain) == 0 {
		return nil, nil, &agenterrors.TLSError{
			Kind:   agenterrors.MissingCertificate,
			Reason: "no PEM CERTIFICATE block found",
		}
	}
	return chain, leaf, nil
}

// parsePrivateKey scans all PKCS#8 blocks first, then PKCS#1 blocks. The
// first block that parses wins.
func parsePrivateKey(data []byte) (crypto.Signer, error) {
	var pkcs8, pkcs1 [][]byte
	for rest := data; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch block.Type {
		case blockPKCS8:
			pkcs8 = append(pkcs8, block.Bytes)
		case blockPKCS1:
			pkcs1 = append(pkcs1, block.Bytes)
		}
	}

	var lastErr error
	for _, der := range pkcs8 {
		key, err := x509.ParsePKCS8PrivateKey(der)
		if err != nil {
			lastErr = err
			continue
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			lastErr = fmt.Errorf("unsupported private key type %T", key)
			continue
		}
		return signer, nil
	}
	for _, der := range pkcs1 {
		key, err := x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			lastErr = err
			continue
		}
		return key, nil
	}

	if lastErr != nil {
		return nil, &agenterrors.TLSError{
			Kind:   agenterrors.InvalidPrivateKey,
			Reason: "no private key block parses",
			Cause:  lastErr,
		}
	}
	return nil, &agenterrors.TLSError{
		Kind:   agenterrors.MissingPrivateKey,
		Reason: "no PEM \"PRIVATE KEY\" or \"RSA PRIVATE KEY\" block found",
	}
}

func matchKey(leaf *x509.Certificate, key crypto.Signer) error {
	type equaler interface {
		Equal(crypto.PublicKey) bool
	}

	pub, ok := key.Public().(equaler)
	if !ok {
		return &agenterrors.TLSError{Kind: agenterrors.InvalidPrivateKey, Reason: fmt.Sprintf("unsupported key type %T", key)}
	}
	if !pub.Equal(leaf.PublicKey) {
		return &agenterrors.TLSError{
			Kind:   agenterrors.KeyMismatch,
			Reason: fmt.Sprintf("private key (%s) does not match certificate for %q", keyAlgorithm(key), leaf.Subject.CommonName),
		}
	}
	return nil
}

func keyAlgorithm(key crypto.Signer) string {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return fmt.Sprintf("RSA-%d", k.N.BitLen())
	case *ecdsa.PrivateKey:
		return "ECDSA-" + k.Curve.Params().Name
	case ed25519.PrivateKey:
		return "Ed25519"
	default:
		return fmt.Sprintf("%T", key)
	}
}
