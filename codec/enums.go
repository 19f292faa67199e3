package codec

import (
	wasihttp "github.com/wippyai/wasi-http-abi"
	"github.com/wippyai/wasi-http-abi/host"
)

// methodOtherTag is the first tag that carries an inline method name.
const methodOtherTag = uint32(host.MethodOther)

// schemeOtherTag is the first tag that carries an inline scheme name.
const schemeOtherTag = uint32(host.SchemeOther)

// ReadMethod decodes the method variant. Tags 0..8 map to GET..PATCH; any
// higher tag reads the name at ptr/len as the other arm.
func ReadMethod(mem wasihttp.Memory, tag, ptr, length uint32) (host.Method, error) {
	if tag < methodOtherTag {
		return host.Method{Kind: host.MethodKind(tag)}, nil
	}
	name, err := mem.ReadString(ptr, length)
	if err != nil {
		return host.Method{}, err
	}
	return host.OtherMethod(name), nil
}

// ReadScheme decodes option<scheme>. An absent scheme defaults to HTTPS.
func ReadScheme(mem wasihttp.Memory, isSome, tag, ptr, length uint32) (host.Scheme, error) {
	if !present(isSome) {
		return host.Scheme{Kind: host.SchemeHTTPS}, nil
	}
	if tag < schemeOtherTag {
		return host.Scheme{Kind: host.SchemeKind(tag)}, nil
	}
	name, err := mem.ReadString(ptr, length)
	if err != nil {
		return host.Scheme{}, err
	}
	return host.OtherScheme(name), nil
}
