package collect

// Source types understood by the collector. Anything other than
// SourceTypeJSON is treated as plain text.
const (
	// SourceTypeText marks sources serving raw ip:port lists.
	SourceTypeText = "text"
	// SourceTypeJSON marks sources serving a JSON document with a
	// candidate list, optionally nested under JSONPath.
	SourceTypeJSON = "json"
)

// Source describes one public proxy list to collect from.
type Source struct {
	// Name is the short label used in status reports and logs.
	Name string `yaml:"name" json:"name"`

	// URL is the list location.
	URL string `yaml:"url" json:"url"`

	// Type selects the extraction strategy: "text" (default) or "json".
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// JSONPath is a dot-separated object path to the candidate list
	// inside a JSON source. Empty means the document root.
	JSONPath string `yaml:"json_path,omitempty" json:"json_path,omitempty"`
}

// DefaultSources returns the built-in source catalog. The returned slice is
// a fresh copy, so callers may append their own sources to it.
func DefaultSources() []Source {
	return []Source{
		// Aggregator APIs
		{
			Name: "ProxyScrape",
			URL:  "https://api.proxyscrape.com/v2/?request=getproxies&protocol=socks5&timeout=10000&country=all",
			Type: SourceTypeText,
		},
		{
			Name: "ProxyList Download",
			URL:  "https://www.proxy-list.download/api/v1/get?type=socks5",
			Type: SourceTypeText,
		},
		{
			Name: "OpenProxyList",
			URL:  "https://openproxylist.xyz/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "ProxyScrape v3",
			URL:  "https://api.proxyscrape.com/v3/free-proxy-list/get?request=displayproxies&protocol=socks5&timeout=10000",
			Type: SourceTypeText,
		},

		// GitHub raw lists
		{
			Name: "TheSpeedX",
			URL:  "https://raw.githubusercontent.com/TheSpeedX/SOCKS-List/master/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "ShiftyTR",
			URL:  "https://raw.githubusercontent.com/ShiftyTR/Proxy-List/master/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "monosans",
			URL:  "https://raw.githubusercontent.com/monosans/proxy-list/main/proxies/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "hookzof",
			URL:  "https://raw.githubusercontent.com/hookzof/socks5_list/master/proxy.txt",
			Type: SourceTypeText,
		},
		{
			Name: "jetkai",
			URL:  "https://raw.githubusercontent.com/jetkai/proxy-list/main/online-proxies/txt/proxies-socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "roosterkid",
			URL:  "https://raw.githubusercontent.com/roosterkid/openproxylist/main/SOCKS5_RAW.txt",
			Type: SourceTypeText,
		},
		{
			Name: "MuRongPIG",
			URL:  "https://raw.githubusercontent.com/MuRongPIG/Proxy-Master/main/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "prxchk",
			URL:  "https://raw.githubusercontent.com/prxchk/proxy-list/main/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "STARTER8128",
			URL:  "https://raw.githubusercontent.com/STARTER8128/ProxyList/refs/heads/main/SOCKS5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "zloi-user",
			URL:  "https://raw.githubusercontent.com/zloi-user/hideip.me/main/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "Anonym0usWork1221",
			URL:  "https://raw.githubusercontent.com/Anonym0usWork1221/Free-Proxies/main/proxy_files/socks5_proxies.txt",
			Type: SourceTypeText,
		},
		{
			Name: "ErcinDedeworker",
			URL:  "https://raw.githubusercontent.com/ErcinDedeworker/Proxy-List-World/main/proxy-list/data/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "sunny9577",
			URL:  "https://raw.githubusercontent.com/sunny9577/proxy-scraper/master/proxies/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "officialputuid",
			URL:  "https://raw.githubusercontent.com/officialputuid/KangProxy/KangProxy/socks5/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "proxifly",
			URL:  "https://raw.githubusercontent.com/proxifly/free-proxy-list/main/proxies/protocols/socks5/data.txt",
			Type: SourceTypeText,
		},
		{
			Name: "r00tee",
			URL:  "https://raw.githubusercontent.com/r00tee/Proxy-List/main/Socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "Zaeem20",
			URL:  "https://raw.githubusercontent.com/Zaeem20/FREE_PROXIES_LIST/master/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "BreakingTechFr",
			URL:  "https://raw.githubusercontent.com/BreakingTechFr/Proxy_Free/main/proxies/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "Vann-Dev",
			URL:  "https://raw.githubusercontent.com/Vann-Dev/proxy-list/main/proxies/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "yemixzy",
			URL:  "https://raw.githubusercontent.com/yemixzy/proxy-list/main/proxies/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "casals-ar",
			URL:  "https://raw.githubusercontent.com/casals-ar/proxy-list/main/socks5",
			Type: SourceTypeText,
		},
		{
			Name: "fahimscirex",
			URL:  "https://raw.githubusercontent.com/fahimscirex/proxybd/master/proxylist/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "mmpx12",
			URL:  "https://raw.githubusercontent.com/mmpx12/proxy-list/master/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "zevtyardt",
			URL:  "https://raw.githubusercontent.com/zevtyardt/proxy-list/main/socks5.txt",
			Type: SourceTypeText,
		},
		{
			Name: "im-razvan",
			URL:  "https://raw.githubusercontent.com/im-razvan/proxy_list/main/socks5.txt",
			Type: SourceTypeText,
		},

		// JSON APIs
		{
			Name:     "GeoNode",
			URL:      "https://proxylist.geonode.com/api/proxy-list?protocols=socks5&limit=500&page=1&sort_by=lastChecked&sort_type=desc",
			Type:     SourceTypeJSON,
			JSONPath: "data",
		},
	}
}
