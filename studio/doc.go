/*
Package studio contains the editing and playback engine of Kaiku.

The Model struct holds the project state: the song, the file paths and the
last reported transport status. Every edit of the song goes through the
History as a Command, a pair of Do/Undo closures over deep-copied state, so
any edit can be reversed, grouped with others into one undoable step, or
merged with the previous one when the user is dragging a value.

The Transport owns the playback position and play/record state on a separate
goroutine (or inside the audio callback, through the Sequencer). Model and
Transport never share mutable data: they exchange messages and deep copies of
the song through the Broker, which is why neither side takes a lock and the
timing side never blocks on the UI.

Transport state is not part of the undo history. Undoing an edit restores
song data; it never seeks playback or stops the transport.
*/
package studio
