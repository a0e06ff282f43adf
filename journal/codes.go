package journal

// Code identifies the condition behind an entry. Codes are stable strings
// for log matching; the frozen numeric contract lives in http/flags, not here.
type Code uint16

const (
	CodeUnknown Code = iota

	CodeLineLeadingWhitespace
	CodeMethodDelimNonCompliant
	CodeURIDelimNonCompliant
	CodeUnknownMethod
	CodeUnknownMethodNoProtocol
	CodeUnknownMethodInvalidProtocol
	CodeMissingProtocol
	CodeInvalidProtocol
	CodeInvalidStatus

	CodeFieldMissingColon
	CodeFieldEmptyName
	CodeFieldNameNotToken
	CodeFieldLWSAfterName
	CodeFieldInvalidFolding
	CodeFieldRepeated
	CodeFieldNulByte
	CodeFieldOverLimit
	CodeTooManyFields
	CodeFoldedLine
	CodeDeformedEOL

	CodeHostMissing
	CodeHostAmbiguous
	CodeHostInvalid
	CodeDuplicateContentLength
	CodeInvalidContentLength
	CodeInvalidTransferEncoding
	CodeChunkedOnOldProtocol
	CodeInvalidChunkSize
	CodeInvalidAuthorization

	CodeMultiPacketHead
	CodeExtraDataAfter09
	CodeResponseWithoutRequest
	CodeDoubleContinue
	CodeSwitchToTunnel
	CodeSwitchWithLength
	CodeUnexpectedBody
	CodeByterangesResponse
	CodeOverlappingData
	CodeRequestIncomplete
	CodeResponseIncomplete
	CodeParserState

	CodePathInvalidEncoding
	CodeQueryInvalidEncoding
	CodePathRawNul
	CodePathOverlong

	CodeDecompressionFailed
	CodeDecompressionBomb
	CodeCodingUnknown

	CodeMultipartNoBoundary
	CodeMultipartInvalidBoundary
	CodeMultipartIncomplete
	CodeMultipartPartAfterLast
	CodeFileOverLimit

	CodeUrlencodedInvalid
)

var codeNames = map[Code]string{
	CodeUnknown: "unknown",

	CodeLineLeadingWhitespace:        "line_leading_whitespace",
	CodeMethodDelimNonCompliant:      "method_delim_non_compliant",
	CodeURIDelimNonCompliant:         "uri_delim_non_compliant",
	CodeUnknownMethod:                "unknown_method",
	CodeUnknownMethodNoProtocol:      "unknown_method_no_protocol",
	CodeUnknownMethodInvalidProtocol: "unknown_method_invalid_protocol",
	CodeMissingProtocol:              "missing_protocol",
	CodeInvalidProtocol:              "invalid_protocol",
	CodeInvalidStatus:                "invalid_status",

	CodeFieldMissingColon:   "field_missing_colon",
	CodeFieldEmptyName:      "field_empty_name",
	CodeFieldNameNotToken:   "field_name_not_token",
	CodeFieldLWSAfterName:   "field_lws_after_name",
	CodeFieldInvalidFolding: "field_invalid_folding",
	CodeFieldRepeated:       "field_repeated",
	CodeFieldNulByte:        "field_nul_byte",
	CodeFieldOverLimit:      "field_over_limit",
	CodeTooManyFields:       "too_many_fields",
	CodeFoldedLine:          "folded_line",
	CodeDeformedEOL:         "deformed_eol",

	CodeHostMissing:             "host_missing",
	CodeHostAmbiguous:           "host_ambiguous",
	CodeHostInvalid:             "host_invalid",
	CodeDuplicateContentLength:  "duplicate_content_length",
	CodeInvalidContentLength:    "invalid_content_length",
	CodeInvalidTransferEncoding: "invalid_transfer_encoding",
	CodeChunkedOnOldProtocol:    "chunked_on_old_protocol",
	CodeInvalidChunkSize:        "invalid_chunk_size",
	CodeInvalidAuthorization:    "invalid_authorization",

	CodeMultiPacketHead:        "multi_packet_head",
	CodeExtraDataAfter09:       "extra_data_after_09",
	CodeResponseWithoutRequest: "response_without_request",
	CodeDoubleContinue:         "double_continue",
	CodeSwitchToTunnel:         "switch_to_tunnel",
	CodeSwitchWithLength:       "switch_with_length",
	CodeUnexpectedBody:         "unexpected_body",
	CodeByterangesResponse:     "byteranges_response",
	CodeOverlappingData:        "overlapping_data",
	CodeRequestIncomplete:      "request_incomplete",
	CodeResponseIncomplete:     "response_incomplete",
	CodeParserState:            "parser_state",

	CodePathInvalidEncoding:  "path_invalid_encoding",
	CodeQueryInvalidEncoding: "query_invalid_encoding",
	CodePathRawNul:           "path_raw_nul",
	CodePathOverlong:         "path_overlong",

	CodeDecompressionFailed: "decompression_failed",
	CodeDecompressionBomb:   "decompression_bomb",
	CodeCodingUnknown:       "coding_unknown",

	CodeMultipartNoBoundary:      "multipart_no_boundary",
	CodeMultipartInvalidBoundary: "multipart_invalid_boundary",
	CodeMultipartIncomplete:      "multipart_incomplete",
	CodeMultipartPartAfterLast:   "multipart_part_after_last",
	CodeFileOverLimit:            "file_over_limit",

	CodeUrlencodedInvalid: "urlencoded_invalid",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return codeNames[CodeUnknown]
}
