package xsd

// builtinTypes is the set of XML Schema built-in simple type names.
var builtinTypes = map[string]bool{
	// Primitive types
	"string": true, "boolean": true, "decimal": true, "float": true,
	"double": true, "duration": true, "dateTime": true, "time": true,
	"date": true, "gYearMonth": true, "gYear": true, "gMonthDay": true,
	"gDay": true, "gMonth": true, "hexBinary": true, "base64Binary": true,
	"anyURI": true, "QName": true, "NOTATION": true,

	// Derived string types
	"normalizedString": true, "token": true, "language": true, "Name": true,
	"NCName": true, "ID": true, "IDREF": true, "IDREFS": true,
	"ENTITY": true, "ENTITIES": true, "NMTOKEN": true, "NMTOKENS": true,

	// Derived numeric types
	"integer": true, "nonPositiveInteger": true, "negativeInteger": true,
	"long": true, "int": true, "short": true, "byte": true,
	"nonNegativeInteger": true, "unsignedLong": true, "unsignedInt": true,
	"unsignedShort": true, "unsignedByte": true, "positiveInteger": true,

	"anyType": true, "anySimpleType": true,
}

// BooleanValues is the lexical space of xs:boolean, offered verbatim when
// completing a boolean-typed attribute value.
var BooleanValues = []string{"true", "false", "1", "0"}

// IsBuiltin reports whether qname names an XML Schema built-in simple type.
func IsBuiltin(qname QName) bool {
	return qname.Namespace == XSDNamespace && builtinTypes[qname.Local]
}

// IsBooleanType reports whether qname is the built-in boolean type.
func IsBooleanType(qname QName) bool {
	return qname.Namespace == XSDNamespace && qname.Local == "boolean"
}
