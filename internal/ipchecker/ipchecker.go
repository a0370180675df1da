// Package ipchecker restricts operator endpoints, such as account
// registration, to clients from a trusted subnet.
package ipchecker

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/patric-chuzhbe/arsipsurat/internal/logger"
)

// forbiddenMessage is the body of a rejected request.
const forbiddenMessage = "Akses ditolak"

// IPChecker decides whether a request comes from the trusted subnet.
// The zero subnet trusts everyone.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New parses trustedSubnet in CIDR notation, e.g. "192.168.1.0/24". An empty
// string yields a checker that lets every client through.
func New(trustedSubnet string) (*IPChecker, error) {
	trustedSubnet = strings.TrimSpace(trustedSubnet)
	if trustedSubnet == "" {
		return &IPChecker{}, nil
	}

	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}

	return &IPChecker{trustedSubnet: allowedNet}, nil
}

// Enabled reports whether a subnet was configured.
func (checker *IPChecker) Enabled() bool {
	return checker.trustedSubnet != nil
}

// Allows reports whether clientIP may reach guarded endpoints.
func (checker *IPChecker) Allows(clientIP net.IP) bool {
	if !checker.Enabled() {
		return true
	}
	return clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// ClientIP returns the address the request claims to come from: X-Real-IP,
// then the first parsable X-Forwarded-For entry, then RemoteAddr.
func ClientIP(request *http.Request) (net.IP, error) {
	if ip := net.ParseIP(strings.TrimSpace(request.Header.Get("X-Real-IP"))); ip != nil {
		return ip, nil
	}

	if forwarded := request.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip, nil
		}
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/ClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/ClientIP(): %q is not an IP address", host)
	}

	return ip, nil
}

// Guard answers 403 to clients outside the trusted subnet.
func (checker *IPChecker) Guard(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if !checker.Enabled() {
			h.ServeHTTP(response, request)
			return
		}

		clientIP, err := ClientIP(request)
		if err != nil || !checker.Allows(clientIP) {
			logger.Log.Infow(
				"request from untrusted address rejected",
				"client_ip", clientIP,
				"remote_addr", request.RemoteAddr,
				"uri", request.RequestURI,
			)
			response.Header().Set("Content-Type", "application/json")
			response.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(response).Encode(map[string]string{"message": forbiddenMessage})
			return
		}

		h.ServeHTTP(response, request)
	})
}
