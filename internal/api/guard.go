package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var errBlockedHost = errors.New("host resolves to a non-public address")

type ipResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// checkPublicHost 只允许解析结果全部是公网地址的主机，防止通过 extract 访问内网服务
func checkPublicHost(ctx context.Context, r ipResolver, host string) error {
	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		addrs, err := r.LookupIPAddr(ctx, host)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", host, err)
		}
		for _, a := range addrs {
			ips = append(ips, a.IP)
		}
	}
	if len(ips) == 0 {
		return fmt.Errorf("resolve %s: no addresses", host)
	}

	for _, ip := range ips {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
			ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
			ip.IsInterfaceLocalMulticast() || ip.IsMulticast() {
			return fmt.Errorf("%s (%s): %w", host, ip, errBlockedHost)
		}
	}
	return nil
}
