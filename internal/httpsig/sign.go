// Package httpsig signs outbound requests using the HTTP Signature scheme
// defined in draft-cavage-http-signatures-10.
package httpsig

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-fed/httpsig"
)

// Sign signs the request using the given keyID and privateKey.
// GET requests sign host, date and accept; POST requests sign date and a
// SHA-256 digest of body.
func Sign(req *http.Request, keyID string, privateKey crypto.PrivateKey, body []byte) error {
	req.Header.Set("Date", time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")) // Date must be in GMT, not UTC
	headersToSign := []string{
		httpsig.RequestTarget,
	}
	switch req.Method {
	case "GET":
		headersToSign = append(headersToSign, "host", "date", "accept")
	case "POST":
		headersToSign = append(headersToSign, "date", "digest")
		addDigest(req, body)
	}

	var sb bytes.Buffer
	for _, header := range headersToSign {
		switch header {
		case httpsig.RequestTarget:
			sb.WriteString("(request-target): ")
			sb.WriteString(strings.ToLower(req.Method))
			sb.WriteString(" ")
			sb.WriteString(req.URL.Path)

			if req.URL.RawQuery != "" {
				sb.WriteString("?")
				sb.WriteString(req.URL.RawQuery)
			}
		case "host":
			sb.WriteString("host: ")
			sb.WriteString(req.Host)
		case "date":
			sb.WriteString("date: ")
			sb.WriteString(req.Header.Get("Date"))
		case "accept":
			sb.WriteString("accept: ")
			sb.WriteString(req.Header.Get("Accept"))
		case "digest":
			sb.WriteString("digest: ")
			sb.WriteString(req.Header.Get("Digest"))
		default:
			return fmt.Errorf("unknown header to sign: %s", header)
		}
		sb.WriteString("\n")
	}
	hash := sha256.New()
	hash.Write(bytes.TrimRight(sb.Bytes(), "\n"))
	digest := hash.Sum(nil)

	sig, err := rsa.SignPKCS1v15(rand.Reader, privateKey.(*rsa.PrivateKey), crypto.SHA256, digest)
	if err != nil {
		return err
	}
	enc := base64.StdEncoding.EncodeToString(sig)
	req.Header.Set("Signature", fmt.Sprintf(`keyId="%s",algorithm="rsa-sha256",headers="%s",signature="%s"`, keyID, strings.Join(headersToSign, " "), enc))
	return nil
}

func addDigest(req *http.Request, body []byte) {
	hash := sha256.New()
	hash.Write(body)
	digest := hash.Sum(nil)
	req.Header.Set("Digest", fmt.Sprintf("SHA-256=%s", base64.StdEncoding.EncodeToString(digest)))
}
