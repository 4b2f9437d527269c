package common

// Command keywords and the field delimiter of the line protocol.
const (
	CmdList   = "LIST"
	CmdUpload = "UPLOAD"
	CmdDelete = "DELETE"
	CmdLogout = "LOGOUT"
	CmdHelp   = "HELP"

	Delimiter = "@"
)

// Reply tags.
const (
	TagOK    = "OK"
	TagError = "ERROR"
)

// Reply messages shared by the server and the client.
const (
	MsgWelcome        = "Welcome to the File Server."
	MsgEmptyDirectory = "The server directory is empty"
	MsgUploaded       = "File uploaded successfully."
	MsgDeleted        = "File deleted successfully."
	MsgFileNotFound   = "File not found."
	MsgInvalidCommand = "Invalid command."
	MsgInvalidName    = "Invalid file name."
	MsgUploadFailed   = "Upload failed."
	MsgDeleteFailed   = "Delete failed."
	MsgMalformed      = "Malformed message."
)

// HelpText is the body of the reply to HELP.
const HelpText = "LIST: List all the files from the server.\n" +
	"UPLOAD <path>: Upload a file to the server.\n" +
	"DELETE <filename>: Delete a file from the server.\n" +
	"LOGOUT: Disconnect from the server.\n" +
	"HELP: List all the commands."

// ChunkSize is the transfer unit used when streaming raw file bytes.
const ChunkSize = 1024
